package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns prefix-<uuid> with the dashes dropped from the uuid.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// GenerateRequestID is used as the HTTP request id generator.
func GenerateRequestID() string {
	return GenerateID("req")
}

// GenerateInstanceID names one gateway process.
func GenerateInstanceID() string {
	return GenerateID("gw")
}
