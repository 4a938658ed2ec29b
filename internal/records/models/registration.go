package models

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

var registrationIDPattern = regexp.MustCompile(`^FRM-[1-9][0-9]{5}$`)

// NewRegistrationID draws a farmer registration id in FRM-100000..FRM-999999.
// Uniqueness is enforced by the store; callers retry on conflict.
func NewRegistrationID(r *rand.Rand) string {
	var n int
	if r == nil {
		n = rand.IntN(900000)
	} else {
		n = r.IntN(900000)
	}
	return fmt.Sprintf("FRM-%d", 100000+n)
}

func IsRegistrationID(s string) bool {
	return registrationIDPattern.MatchString(s)
}
