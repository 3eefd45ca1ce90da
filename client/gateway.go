package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
)

const defaultTimeout = 30 * time.Second

// Gateway sends the API calls of a session.
type Gateway struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  core.Logger

	// OnUnauthorized is called after a 401 answer cleared the session.
	OnUnauthorized func()
}

func NewGateway(conf core.ClientConfig, session *Session, logger core.Logger) *Gateway {
	vala.BeginValidation().Validate(
		vala.IsNotNil(session, "session"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	baseURL := strings.TrimRight(strings.TrimSpace(conf.BaseURL), "/")
	if baseURL == "" {
		baseURL = core.DefaultAPIBaseURL
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: session,
		logger:  logger,
	}
}

func (g *Gateway) Session() *Session { return g.session }

type request struct {
	method    string
	path      string
	query     url.Values
	body      interface{}
	anonymous bool
}

func (g *Gateway) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := g.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.anonymous {
		if token := g.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// send performs the request and returns the status and the raw body of the answer.
// A 401 signs the session out whatever the request was.
func (g *Gateway) send(ctx context.Context, r request) (*http.Response, []byte, error) {
	req, err := g.newRequest(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	g.logger.Debug("api request", map[string]interface{}{"method": r.method, "path": r.path})
	resp, err := g.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, &networkError{err}
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &networkError{errors.Wrap(err, "reading response")}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err = g.session.Logout(); err != nil {
			g.logger.Error("clearing session", err)
		}
		if g.OnUnauthorized != nil {
			g.OnUnauthorized()
		}
	}
	return resp, body, nil
}

func (g *Gateway) do(ctx context.Context, r request) (Envelope, error) {
	resp, body, err := g.send(ctx, r)
	if err != nil {
		return Envelope{}, err
	}

	env, decErr := decodeEnvelope(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
		if decErr != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return Envelope{}, apiErr
	}
	if decErr != nil {
		return Envelope{}, decErr
	}
	return env, nil
}

// raw returns the body of a non-JSON answer.
func (g *Gateway) raw(ctx context.Context, r request) (string, error) {
	resp, body, err := g.send(ctx, r)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if env, err := decodeEnvelope(body); err == nil {
			apiErr.Message, apiErr.Fields = env.Message, env.Errors
		}
		return "", apiErr
	}
	return string(body), nil
}
