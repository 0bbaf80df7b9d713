package rbac

const (
	RoleFounder  = "founder"
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

// Default policy. Founders see only their own startups; investors see deal flow.
var RolePermissions = map[string][]string{
	RoleFounder: {
		"startup:submit",
		"startup:view-own",
		"chat:send",
	},
	RoleInvestor: {
		"dealflow:view",
		"portfolio:view",
		"alerts:view",
		"deck:download",
		"chat:send",
	},
	RoleAdmin: {
		"*", // everything
	},
}
