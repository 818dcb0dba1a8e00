package common

// SaltSeparator joins the parts fed into every salt and password digest.
// Stored hashes depend on it, so it must never change.
const SaltSeparator = "--"

// DefaultLimit caps how many users a CLI listing prints.
const DefaultLimit = 100
