// Package models holds the records persisted by the repositories.
package models
