package gateway_client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tdewolff/minify/v2"
	mxml "github.com/tdewolff/minify/v2/xml"

	"github.com/veloxpay/gateway-integration/camt"
	giConfig "github.com/veloxpay/gateway-integration/config"
	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
)

const (
	apiBase = "/api/v5"

	loginPath        = apiBase + "/Auth/Login/Token"
	documentCamtPath = apiBase + "/Document/Camt"
	historyPath      = apiBase + "/Document/Camt/History"
	painPath         = apiBase + "/Payment/Sepa/Pain"
)

// Client performs authenticated HTTP operations against the gateway and
// turns raw responses into parsed data or a typed error. The cached bearer
// token is private to one instance; construct a fresh Client per job
// instance instead of sharing one.
type Client struct {
	Config *giConfig.Configuration
	HTTP   *http.Client

	// Runtime access token, valid until the gateway answers 401.
	bearerToken string
}

var _ giInterfaces.API = &Client{}

func NewClient(cfg *giConfig.Configuration) *Client {
	return &Client{
		Config: cfg,
		HTTP:   &http.Client{Timeout: cfg.Timeout},
	}
}

var painMinifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("text/xml", mxml.Minify)
	return m
}()

// Authenticate posts the credential and client identity to the login
// endpoint and caches the returned bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	apiKey, err := c.Config.ActiveAPIKey()
	if err != nil {
		return eris.Wrap(err, "resolving api key")
	}

	body, err := json.Marshal(map[string]any{
		"apiKey": apiKey,
		"client": map[string]string{
			"name":    c.Config.APIClientName,
			"version": c.Config.APIClientVersion,
		},
	})
	if err != nil {
		return eris.Wrap(err, "marshalling login body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.BaseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "creating login request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	slog.Debug("authenticating against gateway", "url", req.URL.String())
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return eris.Wrap(err, "sending login request")
	}

	parsed, err := c.classify(resp)
	if err != nil {
		return eris.Wrap(err, "logging in")
	}

	var token giModels.AccessTokenResponse
	if err := parsed.decodeJSON(&token); err != nil {
		return eris.Wrap(err, "unmarshalling login response")
	}
	if token.AccessToken == "" {
		return &AuthenticationError{Reason: "gateway returned no access token"}
	}

	c.bearerToken = token.AccessToken
	slog.Debug("got bearer token", "expiresIn", token.ExpiresIn)

	return nil
}

// NewStatements lists unread statement documents. Returns nil on HTTP 204;
// "no new documents" is a normal outcome, not an error.
func (c *Client) NewStatements(ctx context.Context, iban string) (*giModels.DocumentList, error) {
	query := url.Values{}
	if iban != "" {
		query.Set("iban", iban)
	}

	r, err := c.call(ctx, http.MethodGet, documentCamtPath, query, nil, "")
	if err != nil {
		return nil, err
	}
	if r.noContent {
		return nil, nil
	}

	var list giModels.DocumentList
	if err := r.decodeJSON(&list); err != nil {
		return nil, eris.Wrap(err, "unmarshalling document list")
	}
	return &list, nil
}

func (c *Client) StatementHistory(ctx context.Context, iban, from, to string) (*giModels.DocumentList, error) {
	query := url.Values{}
	query.Set("start", from)
	query.Set("end", to)
	if iban != "" {
		query.Set("iban", iban)
	}

	r, err := c.call(ctx, http.MethodGet, historyPath, query, nil, "")
	if err != nil {
		return nil, err
	}
	if r.noContent {
		return nil, nil
	}

	var list giModels.DocumentList
	if err := r.decodeJSON(&list); err != nil {
		return nil, eris.Wrap(err, "unmarshalling document list")
	}
	return &list, nil
}

// CamtFile downloads one statement document. Downloading normally clears
// the document's unread flag on the gateway; markAsRead false ("ack=false")
// preserves it, which the fetch pipeline relies on to acknowledge only after
// a successful hand-off.
func (c *Client) CamtFile(ctx context.Context, rID string, markAsRead bool) (*camt.Document, error) {
	query := url.Values{}
	if !markAsRead {
		query.Set("ack", "false")
	}

	r, err := c.call(ctx, http.MethodGet, documentCamtPath+"/"+url.PathEscape(rID), query, nil, "")
	if err != nil {
		return nil, err
	}
	if r.camt == nil {
		return nil, eris.Errorf("expected a camt.053 statement document for %q", rID)
	}
	return r.camt, nil
}

func (c *Client) AcknowledgeCamtFile(ctx context.Context, rID string) (*giModels.DocumentItem, error) {
	path := documentCamtPath + "/" + url.PathEscape(rID) + "/Acknowledge"
	r, err := c.call(ctx, http.MethodPost, path, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var item giModels.DocumentItem
	if err := r.decodeJSON(&item); err != nil {
		return nil, eris.Wrap(err, "unmarshalling acknowledged document")
	}
	return &item, nil
}

func (c *Client) SubmitPainFile(ctx context.Context, painXML []byte) (*giModels.PainEnvelope, error) {
	compact, err := painMinifier.Bytes("text/xml", painXML)
	if err != nil {
		return nil, eris.Wrap(err, "minifying pain document")
	}

	r, err := c.call(ctx, http.MethodPost, painPath, nil, compact, "application/xml")
	if err != nil {
		return nil, err
	}

	var envelope giModels.PainEnvelope
	if err := r.decodeJSON(&envelope); err != nil {
		return nil, eris.Wrap(err, "unmarshalling pain status")
	}
	return &envelope, nil
}

func (c *Client) PainFileInfo(ctx context.Context, rID string) (*giModels.PainEnvelope, error) {
	path := painPath + "/" + url.PathEscape(rID) + "/item"
	r, err := c.call(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var envelope giModels.PainEnvelope
	if err := r.decodeJSON(&envelope); err != nil {
		return nil, eris.Wrap(err, "unmarshalling pain status")
	}
	return &envelope, nil
}

// call dispatches one authenticated request. A missing token is acquired
// lazily; on 401 the cached token is dropped and the call is retried exactly
// once after re-authenticating. A second 401 propagates to the caller.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*response, error) {
	for attempt := 0; ; attempt++ {
		if c.bearerToken == "" {
			if err := c.Authenticate(ctx); err != nil {
				return nil, err
			}
		}

		fullURL := c.Config.BaseURL + path
		if len(query) > 0 {
			fullURL += "?" + query.Encode()
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, eris.Wrap(err, "creating request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		slog.Debug("gateway request", "method", method, "url", fullURL)
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "sending request")
		}

		result, err := c.classify(resp)
		var unauthorized *UnauthorizedError
		if errors.As(err, &unauthorized) && attempt == 0 {
			slog.Debug("bearer token rejected, re-authenticating once", "path", path)
			c.bearerToken = ""
			continue
		}
		return result, err
	}
}

// response is the classified outcome of a 2xx gateway answer: exactly one of
// noContent, json or camt is set.
type response struct {
	noContent bool
	json      []byte
	camt      *camt.Document
}

func (r *response) decodeJSON(target any) error {
	if r.json == nil {
		return eris.New("expected a JSON response body")
	}
	return json.Unmarshal(r.json, target)
}

func (c *Client) classify(resp *http.Response) (*response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reading response body")
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return c.parseBody(resp.Header.Get("Content-Type"), body)
	case http.StatusNoContent:
		// "The request was processed successfully, but no data is available."
		return &response{noContent: true}, nil
	case http.StatusBadRequest:
		return nil, &BadRequestError{Messages: errorMessages(body)}
	case http.StatusUnauthorized:
		return nil, &UnauthorizedError{Challenge: resp.Header.Get("WWW-Authenticate")}
	case http.StatusForbidden:
		return nil, &ForbiddenError{Messages: errorMessages(body)}
	case http.StatusNotFound:
		var msg giModels.APIMessage
		_ = json.Unmarshal(body, &msg)
		return nil, &NotFoundError{Message: msg.Message}
	default:
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func (c *Client) parseBody(contentType string, body []byte) (*response, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	switch mediaType {
	case "application/json":
		return &response{json: body}, nil
	case "text/xml", "application/xml":
		if camt.MatchesNamespace(body) {
			doc, err := camt.Parse(body)
			if err != nil {
				return nil, err
			}
			return &response{camt: doc}, nil
		}
		// Not a statement; the gateway also wraps errors in a small XML
		// envelope with errorMessage elements.
		if messages := xmlErrorMessages(body); len(messages) > 0 {
			return nil, eris.Errorf("gateway error: %s", strings.Join(messages, ", "))
		}
		return nil, eris.New("response is XML, but no known XML schema found")
	default:
		return nil, eris.Errorf("unknown content type %q", contentType)
	}
}

// errorMessages extracts the errorMessage texts from the gateway's JSON
// error list, falling back to the raw body when the shape is unexpected.
func errorMessages(body []byte) []string {
	var list giModels.ErrorList
	if err := json.Unmarshal(body, &list); err == nil && len(list.ErrorItems) > 0 {
		messages := make([]string, 0, len(list.ErrorItems))
		for _, item := range list.ErrorItems {
			messages = append(messages, item.ErrorMessage)
		}
		return messages
	}
	if len(body) == 0 {
		return nil
	}
	return []string{string(body)}
}

// xmlErrorMessages collects the text of all errorMessage elements from an
// XML error envelope, whatever the surrounding structure is.
func xmlErrorMessages(body []byte) []string {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	var messages []string
	var inElement bool
	for {
		token, err := decoder.Token()
		if err != nil {
			return messages
		}
		switch t := token.(type) {
		case xml.StartElement:
			inElement = t.Name.Local == "errorMessage"
		case xml.CharData:
			if inElement {
				if text := strings.TrimSpace(string(t)); text != "" {
					messages = append(messages, text)
				}
			}
		case xml.EndElement:
			inElement = false
		}
	}
}
