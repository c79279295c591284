package common

// AuthQueryParam is the query parameter that carries the bearer credential
// on Firebase REST requests.
const AuthQueryParam = "auth"

// DefaultTimezone is the zone used for every day-bucket computation unless
// configured otherwise.
const DefaultTimezone = "Europe/Rome"
