// Package credential resolves battery passport credentials from an external
// issuer. Resolution failures never block planning: the caller degrades the
// lifecycle claim to UNKNOWN and plans with reduced trust.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/model"
)

// Resolver looks up the battery credential for a battery id.
type Resolver interface {
	Resolve(ctx context.Context, batteryID string) (model.BatteryCredential, error)
}

// Config holds the issuer endpoint settings.
type Config struct {
	Endpoint  string `json:"endpoint"`
	TimeoutMS int    `json:"timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 2000
	}
}

// HTTPResolver fetches credentials from a battery passport HTTP API.
type HTTPResolver struct {
	endpoint string
	client   *http.Client
}

// NewHTTPResolver builds a resolver against cfg.Endpoint.
func NewHTTPResolver(cfg Config) *HTTPResolver {
	cfg.SetDefaults()
	return &HTTPResolver{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

// Resolve fetches GET {endpoint}/credentials/{batteryID}.
func (r *HTTPResolver) Resolve(ctx context.Context, batteryID string) (model.BatteryCredential, error) {
	var cred model.BatteryCredential
	u := fmt.Sprintf("%s/credentials/%s", r.endpoint, url.PathEscape(batteryID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return cred, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return cred, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return cred, fmt.Errorf("credential issuer returned %d for %s", resp.StatusCode, batteryID)
	}
	var payload struct {
		BatteryID       string `json:"battery_id"`
		Lifecycle       string `json:"lifecycle_status"`
		CellType        string `json:"cell_type"`
		Manufacturer    string `json:"manufacturer"`
		ManufactureDate string `json:"manufacture_date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return cred, fmt.Errorf("decode credential: %w", err)
	}
	cred = model.BatteryCredential{
		BatteryID:       payload.BatteryID,
		Lifecycle:       model.ParseLifecycleStatus(payload.Lifecycle),
		CellType:        payload.CellType,
		Manufacturer:    payload.Manufacturer,
		ManufactureDate: payload.ManufactureDate,
	}
	if cred.BatteryID == "" {
		cred.BatteryID = batteryID
	}
	return cred, nil
}

// StaticResolver serves credentials from a fixed map, used in tests and in
// deployments without a passport issuer.
type StaticResolver struct {
	creds map[string]model.BatteryCredential
}

// NewStaticResolver builds a resolver over the given credentials.
func NewStaticResolver(creds map[string]model.BatteryCredential) *StaticResolver {
	return &StaticResolver{creds: creds}
}

// Resolve returns the stored credential or an error when absent.
func (r *StaticResolver) Resolve(_ context.Context, batteryID string) (model.BatteryCredential, error) {
	cred, ok := r.creds[batteryID]
	if !ok {
		return model.BatteryCredential{}, fmt.Errorf("no credential for battery %s", batteryID)
	}
	return cred, nil
}

// ResolveOrUnknown resolves the credential, degrading to an UNKNOWN lifecycle
// claim when resolution fails.
func ResolveOrUnknown(ctx context.Context, r Resolver, batteryID string, log logger.Logger) model.BatteryCredential {
	if r == nil || batteryID == "" {
		return model.BatteryCredential{BatteryID: batteryID, Lifecycle: model.LifecycleUnknown}
	}
	cred, err := r.Resolve(ctx, batteryID)
	if err != nil {
		log.Warnf("credential resolution failed for %s, degrading to UNKNOWN: %v", batteryID, err)
		return model.BatteryCredential{BatteryID: batteryID, Lifecycle: model.LifecycleUnknown}
	}
	return cred
}
