package utils

import (
	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/spf13/viper"
)

// FilerOptions reads minio settings from the filer.* keys
func FilerOptions(c *viper.Viper) miniofs.Options {
	return miniofs.Options{Bucket: c.GetString("filer.bucket"), URL: c.GetString("filer.url"),
		User: c.GetString("filer.user"), Key: c.GetString("filer.key")}
}
