package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	defaultNonceSize = 12 // 12 is the standard
)

// HashWithArgon uses Argon2 to derive a 32 byte AES key from a passphrase
// and salt.
func HashWithArgon(passphrase string, salt string, timeConsideration uint32, threads uint8) []byte {

	if passphrase == "" || salt == "" {
		return nil
	}

	if timeConsideration == 0 {
		timeConsideration = 1
	}

	if threads == 0 {
		threads = 1
	}

	return argon2.IDKey([]byte(passphrase), []byte(salt), timeConsideration, 64*1024, threads, 32)
}

// SealLocator encrypts a resource locator (a DSN with credentials) with an
// AES-GCM compatible hashed key and returns it base64 encoded, suitable
// for storing in a config file.
func SealLocator(locator string, hashedKey []byte) (string, error) {

	if locator == "" || len(hashedKey) == 0 {
		return "", errors.New("locator or hash can't be zero length")
	}

	block, err := aes.NewCipher(hashedKey)
	if err != nil {
		return "", err
	}

	aesGcm, err := cipher.NewGCMWithNonceSize(block, defaultNonceSize)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, defaultNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	cipherData := aesGcm.Seal(nonce, nonce, []byte(locator), nil)

	return base64.StdEncoding.EncodeToString(cipherData), nil
}

// OpenLocator decrypts a sealed locator produced by SealLocator.
func OpenLocator(sealedLocator string, hashedKey []byte) (string, error) {

	cipherDataWithNonce, err := base64.StdEncoding.DecodeString(sealedLocator)
	if err != nil {
		return "", err
	}

	if len(hashedKey) == 0 || len(cipherDataWithNonce) <= defaultNonceSize {
		return "", errors.New("hash can't be zero length and sealed locator can't be smaller than a nonce")
	}

	block, err := aes.NewCipher(hashedKey)
	if err != nil {
		return "", err
	}

	aesGcm, err := cipher.NewGCMWithNonceSize(block, defaultNonceSize)
	if err != nil {
		return "", err
	}

	nonce, cipherData := cipherDataWithNonce[:defaultNonceSize], cipherDataWithNonce[defaultNonceSize:]
	locator, err := aesGcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return "", err
	}

	return string(locator), nil
}
