package devgateway

import "golang.org/x/crypto/bcrypt"

// hashPassword hashes a plaintext password with configured cost.
func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// comparePassword verifies a password against its hashed value.
func comparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
