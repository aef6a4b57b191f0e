package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted bcrypt hash of the password. The plaintext is
// never stored or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. bcrypt's
// compare is constant-time with respect to the hash contents.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
