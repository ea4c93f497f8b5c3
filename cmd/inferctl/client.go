package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// client is a thin HTTP wrapper that prints indented JSON responses.
type client struct {
	server string
	tenant int64
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (c *client) do(method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.server+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant > 0 {
		req.Header.Set("X-Tenant-ID", strconv.FormatInt(c.tenant, 10))
	}

	httpc := &http.Client{Timeout: 5 * time.Minute}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		pretty.WriteByte('\n')
		_, _ = pretty.WriteTo(os.Stdout)
	} else {
		_, _ = os.Stdout.Write(raw)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func (c *client) getJSON(path string) error            { return c.do(http.MethodGet, path, nil) }
func (c *client) postJSON(path string, body any) error { return c.do(http.MethodPost, path, body) }
func (c *client) delete(path string) error             { return c.do(http.MethodDelete, path, nil) }
