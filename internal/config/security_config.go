// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps route names to their required security level.
// Reads are public; anything that moves funds or changes state needs a
// caller.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Contract - Public
	"Health":                  SecurityPublic,
	"Metrics":                 SecurityPublic,
	"GetAdmin":                SecurityPublic,
	"GetCar":                  SecurityPublic,
	"GetCarStatus":            SecurityPublic,
	"ListCars":                SecurityPublic,
	"GetRental":               SecurityPublic,
	"QuoteRental":             SecurityPublic,
	"GetAdminFee":             SecurityPublic,
	"GetAdminAccumulatedFees": SecurityPublic,
	"GetContractBalance":      SecurityPublic,
	"Audit":                   SecurityPublic,

	// Contract - Access Protected
	"Initialize":        SecurityAccess,
	"AddCar":            SecurityAccess,
	"RemoveCar":         SecurityAccess,
	"Rental":            SecurityAccess,
	"ReturnCar":         SecurityAccess,
	"PayoutOwner":       SecurityAccess,
	"SetAdminFee":       SecurityAccess,
	"WithdrawAdminFees": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
