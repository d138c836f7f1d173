package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pagefinder/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralOCR extracts text from PDFs using the Mistral OCR API.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	policy   resilience.RetryPolicy
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{},
		policy:   resilience.DefaultRetryPolicy(),
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractPages reads a PDF file, sends it to Mistral OCR, and returns the
// markdown of each page ordered by page index. 429 and 5xx responses are
// retried.
func (m *MistralOCR) ExtractPages(ctx context.Context, pdfPath string) ([]string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	dataURL := "data:application/pdf;base64," + encoded

	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: dataURL,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal mistral request")
	}

	var respBody []byte
	err = resilience.Do(ctx, m.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return eris.Wrap(err, "ocr: create mistral request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+m.apiKey)

		resp, err := m.client.Do(req)
		if err != nil {
			return eris.Wrap(err, "ocr: mistral API call")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "ocr: read mistral response")
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode, string(body))
			if resilience.ClassifyHTTPStatus(resp.StatusCode) != resilience.ClassFatal {
				return resilience.NewTransientError(apiErr, resp.StatusCode)
			}
			return apiErr
		}
		respBody = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	sort.SliceStable(ocrResp.Pages, func(i, j int) bool {
		return ocrResp.Pages[i].Index < ocrResp.Pages[j].Index
	})
	pages := make([]string, len(ocrResp.Pages))
	for i, page := range ocrResp.Pages {
		pages[i] = page.Markdown
	}

	return normalize(pages), nil
}
