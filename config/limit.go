package config

import "golang.org/x/time/rate"

// rateLimit maps requests per second to a limiter setting; zero disables limiting
func rateLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}
