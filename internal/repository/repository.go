// Package repository holds the GORM-backed stores the moderation core talks
// to. Every constructor takes the handle to use, so a service can bind all
// three stores to one transaction.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
