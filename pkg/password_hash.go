package pkg

import "golang.org/x/crypto/bcrypt"

const TokenHashCost = 12

// HashToken produces a bcrypt hash of the API token, to be stored in the config/env
// instead of the plain token.
func HashToken(token string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	return BytesToString(bytes), err
}

func CheckTokenHash(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
