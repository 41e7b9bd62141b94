package verification

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// Etherscan answers, matched as substrings since explorers vary the prefix
const (
	resultPassVerified    = "Pass - Verified"
	resultAlreadyVerified = "already verified"
	resultPending         = "Pending in queue"
	resultUnableToLocate  = "Unable to locate ContractCode"
	resultRateLimited     = "rate limit"
)

// EtherscanVerifier submits standard-json sources to an Etherscan-compatible
// explorer API and polls until the explorer decides.
type EtherscanVerifier struct {
	network    *config.Network
	settings   config.VerificationConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewEtherscanVerifier creates a verifier for the selected network
func NewEtherscanVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *EtherscanVerifier {
	settings := cfg.Pipeline.Verification
	rps := settings.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &EtherscanVerifier{
		network:  cfg.Network,
		settings: settings,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log.With("component", "EtherscanVerifier"),
	}
}

// apiResponse is the envelope of every Etherscan v1 response
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func (r *apiResponse) ok() bool {
	return r.Status == "1"
}

func (r *apiResponse) contains(s string) bool {
	return strings.Contains(strings.ToLower(r.Result), strings.ToLower(s))
}

// Verify submits the request and waits for the explorer's verdict. Errors are
// returned only when the explorer could not be reached or ctx ended.
func (v *EtherscanVerifier) Verify(ctx context.Context, req *models.VerificationRequest) (*models.VerificationOutcome, error) {
	if v.network == nil {
		return nil, domain.ErrNoNetwork
	}
	if v.network.ExplorerAPIURL == "" {
		return nil, fmt.Errorf("network %s has no explorer API URL", v.network.Name)
	}
	if v.network.APIKey == "" {
		return nil, fmt.Errorf("network %s has no explorer API key", v.network.Name)
	}
	if req.Source == nil {
		return nil, fmt.Errorf("no source bundle for %s", req.Artifact)
	}

	log := v.log.With("artifact", req.Artifact, "address", req.Address.Hex())
	addressURL := v.network.AddressURL(req.Address.Hex())

	guid, outcome, err := v.submit(ctx, req, log)
	if err != nil || outcome != nil {
		if outcome != nil {
			outcome.URL = addressURL
		}
		return outcome, err
	}

	outcome, err = v.poll(ctx, guid, log)
	if err != nil {
		return nil, err
	}
	outcome.GUID = guid
	outcome.URL = addressURL
	return outcome, nil
}

// submit posts the sources. It returns a guid to poll, or an outcome when the
// explorer answered right away.
func (v *EtherscanVerifier) submit(ctx context.Context, req *models.VerificationRequest, log *slog.Logger) (string, *models.VerificationOutcome, error) {
	form := url.Values{
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"contractaddress":       {req.Address.Hex()},
		"sourceCode":            {string(req.Source.StandardJSON)},
		"codeformat":            {"solidity-standard-json-input"},
		"contractname":          {req.Source.ContractName},
		"compilerversion":       {req.Source.CompilerVersion},
		"constructorArguements": {hex.EncodeToString(req.EncodedArgs)},
	}

	for attempt := 0; ; attempt++ {
		resp, err := v.do(ctx, http.MethodPost, form)
		if err != nil {
			return "", nil, err
		}

		switch {
		case resp.ok():
			log.Debug("verification submitted", "guid", resp.Result)
			return resp.Result, nil, nil
		case resp.contains(resultAlreadyVerified):
			return "", &models.VerificationOutcome{Status: models.VerificationStatusAlreadyVerified}, nil
		case resp.contains(resultUnableToLocate) && attempt < v.settings.LocateRetries:
			log.Debug("explorer has not indexed the contract yet", "attempt", attempt+1)
			if err := sleep(ctx, v.settings.LocateBackoff); err != nil {
				return "", nil, err
			}
		case resp.contains(resultRateLimited) && attempt < v.settings.LocateRetries:
			if err := sleep(ctx, v.settings.PollInterval); err != nil {
				return "", nil, err
			}
		default:
			return "", models.Rejected(resp.reason()), nil
		}
	}
}

// poll checks the submission status until it leaves the queue
func (v *EtherscanVerifier) poll(ctx context.Context, guid string, log *slog.Logger) (*models.VerificationOutcome, error) {
	form := url.Values{
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	}

	for i := 0; i < v.settings.MaxPolls; i++ {
		if err := sleep(ctx, v.settings.PollInterval); err != nil {
			return nil, err
		}

		resp, err := v.do(ctx, http.MethodGet, form)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.contains(resultPassVerified):
			return &models.VerificationOutcome{Status: models.VerificationStatusVerified}, nil
		case resp.contains(resultAlreadyVerified):
			return &models.VerificationOutcome{Status: models.VerificationStatusAlreadyVerified}, nil
		case resp.contains(resultPending), resp.contains(resultRateLimited):
			log.Debug("verification pending", "guid", guid, "poll", i+1)
		default:
			return models.Rejected(resp.reason()), nil
		}
	}

	return models.Rejected(fmt.Sprintf("still pending after %d status checks", v.settings.MaxPolls)), nil
}

// do sends one rate-limited API call
func (v *EtherscanVerifier) do(ctx context.Context, method string, form url.Values) (*apiResponse, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(v.network.ExplorerAPIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid explorer API URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("chainid", strconv.FormatUint(v.network.ChainID, 10))

	form.Set("apikey", v.network.APIKey)

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	} else {
		for key, values := range form {
			query[key] = values
		}
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("explorer returned %s: %s", httpResp.Status, strings.TrimSpace(string(data)))
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}
	return &resp, nil
}

func (r *apiResponse) reason() string {
	if r.Result != "" {
		return r.Result
	}
	return r.Message
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ usecase.ContractVerifier = (*EtherscanVerifier)(nil)
