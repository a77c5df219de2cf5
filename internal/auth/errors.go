package auth

import (
	"errors"

	"github.com/example/foodlist/internal/store"
)

var (
	// ErrInvalidToken means the token's signature or structure did not verify.
	// It never mutates state.
	ErrInvalidToken = errors.New("token invalid or not found")
	// ErrExpiredToken means the signature verified but the expiry has passed.
	ErrExpiredToken = errors.New("token expired")
	// ErrUnknownUser means the token subject or channel sender has no profile.
	ErrUnknownUser = errors.New("no such user")
	// ErrDuplicatePhoneNumber is a registration conflict on the phone number.
	ErrDuplicatePhoneNumber = store.ErrDuplicatePhone
	// ErrUnreachableChannel means the profile has no channel identity on file.
	ErrUnreachableChannel = errors.New("user cannot be reached over the confirmation channel")
	// ErrInvalidCredentials is returned by password login for any mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationFailed is the only error the gate surfaces.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
