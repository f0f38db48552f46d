package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
)

var (
	RenderFunc = Render
)

// Render asks the external render service for the bytes of a document.
// The service owns templates and layout; this client only ships the
// template reference and the assembled context.
func Render(templateRef string, context map[string]interface{}) ([]byte, error) {
	serviceURL := os.ExpandEnv(os.Getenv("RENDERER_SERVICE"))
	if serviceURL == "" {
		serviceURL = "http://renderer"
	}

	reqBody, err := json.Marshal(map[string]interface{}{"template": templateRef, "context": context})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, serviceURL+"/render", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("render %s failed: %d %s", templateRef, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
