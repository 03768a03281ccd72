package security

import "github.com/nexflow/easepay-confirm/configs"

// Client is an API consumer entitled to the merchant endpoints.
type Client struct {
	ID      string
	Secret  string
	Perms   []string
	Enabled bool
}

// ClientRegistry is built from configuration at startup.
type ClientRegistry map[string]Client

func NewClientRegistry(cfg configs.Config) ClientRegistry {
	reg := make(ClientRegistry, len(cfg.Security.Clients))
	for _, c := range cfg.Security.Clients {
		reg[c.ID] = Client{ID: c.ID, Secret: c.Secret, Perms: c.Perms, Enabled: c.Enabled}
	}
	return reg
}
