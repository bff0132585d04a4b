package conf

import (
	"os"
	"strings"
)

func IsDebug() bool {
	v := os.Getenv(strings.ToUpper(APP_NAME) + "_DEBUG")
	return v == "true" || v == "1"
}
