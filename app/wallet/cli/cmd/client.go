package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wtfcosmos/blockchain/business/web/errs"
)

// client talks to the public api of a node.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string) client {
	return client{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c client) get(path string, out any) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c client) post(path string, in any, out any) error {
	return c.do(http.MethodPost, path, in, out)
}

func (c client) do(method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, er.Error)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
