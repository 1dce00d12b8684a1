/*
Package randx provides cryptographically secure random identifiers.

It generates fallback nicknames for users who did not configure one and UUID
identifiers for client sessions and frame bus subscriptions.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// NicknamePrefix is prepended to generated nicknames.
	NicknamePrefix = "User_"

	// NicknameRandomLength is the length of the Base62 part of a generated nickname.
	NicknameRandomLength = 6
)

// base62 returns n random Base62 characters drawn from crypto/rand.
func base62(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// UserNickname generates a random nickname such as "User_a81Kz0".
func UserNickname() (string, error) {
	suffix, err := base62(NicknameRandomLength)
	if err != nil {
		return "", fmt.Errorf("generate nickname: %w", err)
	}
	return NicknamePrefix + suffix, nil
}

// IsGeneratedNickname reports whether name has the shape produced by UserNickname.
func IsGeneratedNickname(name string) bool {
	if !strings.HasPrefix(name, NicknamePrefix) {
		return false
	}

	raw := name[len(NicknamePrefix):]
	if len(raw) != NicknameRandomLength {
		return false
	}

	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// SessionID generates a UUID v4 string identifying one client session in logs.
func SessionID() string {
	return uuid.New().String()
}

// SubscriberID generates a UUID v4 string identifying a frame bus subscription.
func SubscriberID() string {
	return uuid.New().String()
}
