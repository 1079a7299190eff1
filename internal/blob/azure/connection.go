package azure

import (
	"fmt"
	"strings"

	"github.com/Decentr-net/odyssey/internal/blob"
)

const (
	defaultProtocol       = "https"
	defaultEndpointSuffix = "core.windows.net"
)

// ConnectionString is a parsed storage account connection string.
type ConnectionString struct {
	AccountName    string
	AccountKey     string
	Protocol       string
	EndpointSuffix string
	// BlobEndpoint overrides the url derived from account name and suffix (e.g. for emulators).
	BlobEndpoint string
}

// ParseConnectionString parses `Key=Value;...` connection string.
// The string may be quoted and contain line breaks left by copy-pasting it into environment.
func ParseConnectionString(raw string) (ConnectionString, error) {
	raw = strings.NewReplacer("\r", "", "\n", "").Replace(raw)
	raw = strings.TrimSpace(unquote(strings.TrimSpace(raw)))

	if raw == "" {
		return ConnectionString{}, fmt.Errorf("%w: connection string is empty", blob.ErrConfiguration)
	}

	cs := ConnectionString{
		Protocol:       defaultProtocol,
		EndpointSuffix: defaultEndpointSuffix,
	}

	for _, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		k, v, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}

		k = unquote(strings.TrimSpace(k))
		v = unquote(strings.TrimSpace(v))

		switch strings.ToLower(k) {
		case "accountname":
			cs.AccountName = v
		case "accountkey":
			cs.AccountKey = v
		case "defaultendpointsprotocol":
			if v != "" {
				cs.Protocol = v
			}
		case "endpointsuffix":
			// only the first token counts, anything after whitespace is garbage
			if f := strings.Fields(v); len(f) > 0 {
				cs.EndpointSuffix = f[0]
			}
		case "blobendpoint":
			cs.BlobEndpoint = v
		}
	}

	if cs.AccountName == "" {
		return ConnectionString{}, fmt.Errorf("%w: AccountName is missing", blob.ErrConfiguration)
	}

	if cs.AccountKey == "" {
		return ConnectionString{}, fmt.Errorf("%w: AccountKey is missing", blob.ErrConfiguration)
	}

	return cs, nil
}

// ServiceURL returns blob service url of the account.
func (cs ConnectionString) ServiceURL() string {
	if cs.BlobEndpoint != "" {
		return strings.TrimSuffix(cs.BlobEndpoint, "/") + "/"
	}

	return fmt.Sprintf("%s://%s.blob.%s/", cs.Protocol, cs.AccountName, cs.EndpointSuffix)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}

	return s
}
