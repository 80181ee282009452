package cache

import "fmt"

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func StatusPageKey(slug string) string {
	return fmt.Sprintf("status:%s", slug)
}
