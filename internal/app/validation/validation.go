// Package validation checks user input before anything is hashed or stored.
// Each check is a pure function that records problems in an Errors value;
// callers compose them and refuse to mutate anything while Errors is non-empty.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/sampleapp/internal/common"
)

const (
	NameMaxLength     = 50
	PasswordMinLength = 6
	PasswordMaxLength = 40
)

var emailRegexp = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

// Errors maps a field name to the problems found with it.
// A non-empty Errors matches common.ErrorValidation.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Merge copies every message of other into e.
func (e Errors) Merge(other Errors) Errors {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
	return e
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, m := range e[f] {
			parts = append(parts, f+" "+m)
		}
	}
	return common.ErrorValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == common.ErrorValidation
}

// Name requires a non-blank name of at most NameMaxLength characters.
func Name(name string) Errors {
	errs := Errors{}
	switch {
	case strings.TrimSpace(name) == "":
		errs.Add("name", "can't be blank")
	case utf8.RuneCountInString(name) > NameMaxLength:
		errs.Add("name", fmt.Sprintf("is too long (maximum is %d characters)", NameMaxLength))
	}
	return errs
}

// Email requires a non-blank address shaped like local@domain.tld.
// Uniqueness is left to the store's unique index.
func Email(email string) Errors {
	errs := Errors{}
	switch {
	case strings.TrimSpace(email) == "":
		errs.Add("email", "can't be blank")
	case !emailRegexp.MatchString(email):
		errs.Add("email", "is invalid")
	}
	return errs
}

// Password requires both values, equal to each other, and a length between
// PasswordMinLength and PasswordMaxLength characters inclusive.
func Password(password, confirmation string) Errors {
	errs := Errors{}

	if password == "" {
		errs.Add("password", "can't be blank")
	} else {
		n := utf8.RuneCountInString(password)
		if n < PasswordMinLength {
			errs.Add("password", fmt.Sprintf("is too short (minimum is %d characters)", PasswordMinLength))
		}
		if n > PasswordMaxLength {
			errs.Add("password", fmt.Sprintf("is too long (maximum is %d characters)", PasswordMaxLength))
		}
	}

	if confirmation == "" {
		errs.Add("password_confirmation", "can't be blank")
	} else if password != confirmation {
		errs.Add("password", "doesn't match confirmation")
	}

	return errs
}

// User runs every field check for a save that sets a password.
func User(name, email, password, confirmation string) Errors {
	return Name(name).Merge(Email(email)).Merge(Password(password, confirmation))
}
