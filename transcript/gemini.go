package transcript

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultGeminiModel = "gemini-2.5-flash"

// transcribePrompt asks for timestamps and hold-time detection in one
// pass, as strict JSON matching Result.
const transcribePrompt = `transcribe with timestamps and calculate hold time.
1. Transcribe the audio precisely.
2. Detect "Hold" segments (start, end, duration).
3. Determine the total duration of the audio file in seconds.
4. Output MUST be valid JSON:
{
  "text": "Full transcript here...",
  "total_duration_sec": 300.5,
  "hold_total_sec": 120,
  "hold_segments": [
    {"start": 10.5, "end": 70.5, "duration": 60, "trigger": "少々お待ちください"}
  ]
}`

// GeminiProvider transcribes audio through the Gemini generateContent
// REST endpoint, sending the recording inline.
type GeminiProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	model := os.Getenv("GEMINI_MODEL_NAME")
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inline_data,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Transcribe(ctx context.Context, path string) (Result, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiBlobPart{
					MimeType: "audio/mpeg",
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
				{Text: transcribePrompt},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.BaseURL, p.Model, p.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("gemini transcription returned %s: %s", resp.Status, truncate(string(body), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("gemini returned no candidates")
	}

	text := StripJSONFences(parsed.Candidates[0].Content.Parts[0].Text)
	var res Result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		// Model sometimes answers with plain prose; keep the text.
		return Result{Text: text}, nil
	}
	return res, nil
}

// StripJSONFences removes markdown code fences around a JSON payload.
func StripJSONFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
