// Package withings pulls body-composition measure groups from the Withings
// cloud API. Access relies on a previously authorised refresh token kept in
// a JSON token file; the oauth2 transport renews it transparently and the
// renewed token is written back so the next run keeps working.
package withings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

const (
	defaultAPIBase = "https://wbsapi.withings.net"
	tokenEndpoint  = "https://wbsapi.withings.net/v2/oauth2"

	// Withings measure types carried in a measure group.
	measureWeight     = 1
	measureFatRatio   = 6
	measureMuscleMass = 76
)

// Source fetches weights from the Withings measures API.
type Source struct {
	clientID  string
	secret    string
	tokenFile string
	apiBase   string
	client    *http.Client
}

// Option configures optional behaviour for the Source.
type Option func(*Source)

// WithAPIBase points the Source at an alternate API host.
func WithAPIBase(base string) Option {
	return func(s *Source) { s.apiBase = base }
}

// WithHTTPClient overrides the HTTP client, bypassing the oauth2 transport.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) { s.client = client }
}

// New builds a Source for the given app credentials and token file.
func New(clientID, secret, tokenFile string, opts ...Option) *Source {
	s := &Source{
		clientID:  clientID,
		secret:    secret,
		tokenFile: tokenFile,
		apiBase:   defaultAPIBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourceWithings }

// FetchWeights retrieves every stored measure group. An absent token file
// means the source is simply not linked on this machine; it contributes
// zero rows without an error.
func (s *Source) FetchWeights(ctx context.Context) ([]domain.WeightRecord, error) {
	client := s.client
	if client == nil {
		token, err := s.loadToken()
		if err != nil {
			return nil, err
		}
		if token == nil {
			return nil, nil
		}
		client = s.oauthClient(ctx, token)
	}

	query := url.Values{
		"action":    {"getmeas"},
		"meastypes": {fmt.Sprintf("%d,%d,%d", measureWeight, measureFatRatio, measureMuscleMass)},
		"category":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/measure?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("withings measure request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("withings measure request: status %d", resp.StatusCode)
	}

	var payload measureResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("withings measure decode: %w", err)
	}
	if payload.Status != 0 {
		return nil, fmt.Errorf("withings api status %d", payload.Status)
	}

	return payload.Body.records(), nil
}

// measureResponse mirrors the measures API envelope: real values are
// value × 10^unit.
type measureResponse struct {
	Status int         `json:"status"`
	Body   measureBody `json:"body"`
}

type measureBody struct {
	MeasureGroups []measureGroup `json:"measuregrps"`
}

type measureGroup struct {
	Date     int64     `json:"date"`
	Measures []measure `json:"measures"`
}

type measure struct {
	Value int `json:"value"`
	Type  int `json:"type"`
	Unit  int `json:"unit"`
}

func (m measure) float() float64 {
	return float64(m.Value) * math.Pow10(m.Unit)
}

func (b measureBody) records() []domain.WeightRecord {
	var rows []domain.WeightRecord
	for _, group := range b.MeasureGroups {
		row := domain.WeightRecord{
			Timestamp: time.Unix(group.Date, 0).Local(),
			Source:    "Withings Cloud",
		}
		for _, m := range group.Measures {
			switch m.Type {
			case measureWeight:
				row.WeightKg = m.float()
			case measureFatRatio:
				row.BodyFatPct = domain.Float(m.float())
			case measureMuscleMass:
				row.MuscleMassKg = domain.Float(m.float())
			}
		}
		if row.WeightKg <= 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// loadToken reads the persisted oauth2 token; nil when the file is absent.
func (s *Source) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("withings token file: %w", err)
	}
	return &token, nil
}

// oauthClient wraps the token in a refreshing client that persists renewed
// tokens back to the token file.
func (s *Source) oauthClient(ctx context.Context, token *oauth2.Token) *http.Client {
	conf := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.secret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenEndpoint},
	}
	source := &persistingTokenSource{
		inner: conf.TokenSource(ctx, token),
		file:  s.tokenFile,
		last:  token,
	}
	return oauth2.NewClient(ctx, source)
}

// persistingTokenSource saves every refreshed token so the three-hour
// Withings access tokens survive across merge runs.
type persistingTokenSource struct {
	inner oauth2.TokenSource
	file  string
	last  *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.inner.Token()
	if err != nil {
		return nil, err
	}
	if p.last == nil || token.AccessToken != p.last.AccessToken {
		if data, marshalErr := json.Marshal(token); marshalErr == nil {
			_ = os.WriteFile(p.file, data, 0o600)
		}
		p.last = token
	}
	return token, nil
}
