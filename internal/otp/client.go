// Package otp talks to the phone verification collaborator, which owns challenge
// issuance, expiry and attempt limits.
package otp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const circuitName = "otp"

type Challenge struct {
	ID      string `json:"challenge_id"`
	DevCode string `json:"dev_code,omitempty"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

type issueRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("X-API-Key", cfg.APIKey)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        circuitName,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Infow("circuit breaker state changed", "circuit", name, "from", from.String(), "to", to.String())
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(circuitName).Set(0)

	return &Client{
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// IssueChallenge asks the collaborator to send a code to phone.
func (c *Client) IssueChallenge(ctx context.Context, phone string) (*Challenge, error) {
	result, err := c.execute(func() (interface{}, error) {
		var challenge Challenge
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(issueRequest{Phone: phone}).
			SetResult(&challenge).
			Post("/challenges")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("issue challenge: unexpected status %d", resp.StatusCode())
		}
		if challenge.ID == "" {
			return nil, errors.New("issue challenge: empty challenge id")
		}
		return &challenge, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Challenge), nil
}

// Verify reports whether code answers challengeID. A rejected code is not an error.
func (c *Client) Verify(ctx context.Context, challengeID, code string) (bool, error) {
	result, err := c.execute(func() (interface{}, error) {
		var out verifyResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", challengeID).
			SetBody(verifyRequest{Code: code}).
			SetResult(&out).
			Post("/challenges/{id}/verify")
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode() == http.StatusUnprocessableEntity, resp.StatusCode() == http.StatusNotFound:
			// wrong, expired or exhausted code
			return false, nil
		case resp.IsError():
			return nil, fmt.Errorf("verify challenge: unexpected status %d", resp.StatusCode())
		}
		return out.Verified, nil
	})
	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

func (c *Client) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.breaker.Execute(fn)
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(circuitName).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warnw("otp collaborator circuit open", "error", err)
		}
		return nil, fmt.Errorf("%w: otp: %v", domain.ErrUnavailable, err)
	}
	return result, nil
}

func (c *Client) State() string {
	return c.breaker.State().String()
}
