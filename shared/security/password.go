package security

import (
	"github.com/matthewhartstonge/argon2"
)

var argon = argon2.DefaultConfig()

// HashPassword hashes a plaintext password with argon2id. The returned
// encoded form embeds the salt and parameters; it is the only
// representation that may be persisted.
func HashPassword(password string) (string, error) {
	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword checks a plaintext password against an encoded hash.
// A mismatch is (false, nil); a non-nil error means the hashing primitive
// itself failed and must not be reported as bad credentials.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
