package httpapi

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

func TestProcess_Text(t *testing.T) {
	tr := newTestRouter(t, testDeps{})

	rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/process", jsonBody(`{"kind":"text","data":"I love this product"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	out := decodeJSON(t, rec)
	if out["transcript"] != "I love this product" {
		t.Errorf("transcript = %v", out["transcript"])
	}
	sentiment := out["analysis"].(map[string]any)["sentiment"].(map[string]any)
	if sentiment["label"] != "positive" {
		t.Errorf("sentiment = %v", sentiment)
	}
	md, _ := out["narrative"].(string)
	for _, want := range []string{"### Polarity / Sentiment", "**positive**", "### Topics", "- product (confidence 0.90)", "The text suggests an intent of:"} {
		if !strings.Contains(md, want) {
			t.Errorf("narrative missing %q:\n%s", want, md)
		}
	}
	if _, ok := out["raw"].(map[string]any); !ok {
		t.Error("raw analysis missing")
	}
	if _, ok := out["cost"].(map[string]any); !ok {
		t.Error("cost missing")
	}
	if tr.stt.callCount() != 0 {
		t.Errorf("stt calls = %d, want 0 for text", tr.stt.callCount())
	}
}

func TestProcess_URL(t *testing.T) {
	tr := newTestRouter(t, testDeps{})

	body := `{"kind":"url","data":" https://dpgr.am/spacewalk.wav ","model":"nova-2","language":"en-US","top_n":3}`
	rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/process", jsonBody(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if tr.stt.lastURL != "https://dpgr.am/spacewalk.wav" || tr.stt.lastModel != "nova-2" {
		t.Errorf("stt called with url=%q model=%q", tr.stt.lastURL, tr.stt.lastModel)
	}
	if d, _ := decodeJSON(t, rec)["duration"].(float64); d != 3 {
		t.Errorf("duration = %v, want 3", d)
	}
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name       string
		deps       testDeps
		body       string
		wantStatus int
		wantKind   string
		wantStage  string
		wantMsg    string
	}{
		{
			name:       "unknown kind",
			body:       `{"kind":"video","data":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
			wantStage:  "validation",
		},
		{
			name:       "file kind without upload",
			body:       `{"kind":"file"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation",
			wantStage:  "validation",
		},
		{
			name:       "empty transcript",
			deps:       testDeps{stt: &fakeSTT{text: ""}},
			body:       `{"kind":"url","data":"https://example.com/silence.wav"}`,
			wantStatus: http.StatusBadGateway,
			wantKind:   "transcription",
			wantStage:  "transcription",
			wantMsg:    "Empty transcript. Check the audio URL, model, or credentials.",
		},
		{
			name:       "analysis failure",
			deps:       testDeps{analyzer: &fakeAnalyzer{err: errors.New("Deepgram API error: 500 Internal Server Error - down")}},
			body:       `{"kind":"text","data":"hello"}`,
			wantStatus: http.StatusBadGateway,
			wantKind:   "analysis",
			wantStage:  "analysis",
			wantMsg:    "down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t, tt.deps)
			rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/process", jsonBody(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			out := decodeJSON(t, rec)
			if out["kind"] != tt.wantKind || out["stage"] != tt.wantStage {
				t.Errorf("kind=%v stage=%v, want %s/%s", out["kind"], out["stage"], tt.wantKind, tt.wantStage)
			}
			if msg, _ := out["error"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.wantMsg)
			}
			if out["request_id"] == "" {
				t.Error("request_id missing")
			}
		})
	}
}

func TestProcess_ValidationMakesNoRemoteCalls(t *testing.T) {
	tr := newTestRouter(t, testDeps{})
	tr.do(httptest.NewRequest(http.MethodPost, "/api/process", jsonBody(`{"kind":"video","data":"x"}`)))

	if tr.stt.callCount()+tr.analyzer.callCount() != 0 {
		t.Error("no remote call expected for an unknown kind")
	}
}

func TestProcess_InvalidBody(t *testing.T) {
	tr := newTestRouter(t, testDeps{})
	rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/process", jsonBody(`{"kind":`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte, values map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		_ = mw.WriteField(k, v)
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcess_Upload(t *testing.T) {
	tr := newTestRouter(t, testDeps{})

	req := multipartRequest(t, "file", "call.wav", "audio/wav", []byte("RIFF-audio"), map[string]string{"model": "base", "top_n": "2"})
	rec := tr.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if tr.stt.lastAudio != "RIFF-audio" || tr.stt.lastType != "audio/wav" || tr.stt.lastModel != "base" {
		t.Errorf("stt got audio=%q type=%q model=%q", tr.stt.lastAudio, tr.stt.lastType, tr.stt.lastModel)
	}
}

func TestProcess_UploadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		tr := newTestRouter(t, testDeps{})
		rec := tr.do(multipartRequest(t, "", "", "", nil, map[string]string{"model": "base"}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("too large", func(t *testing.T) {
		tr := newTestRouter(t, testDeps{cfg: RouterConfig{MaxUploadBytes: 1024}})
		rec := tr.do(multipartRequest(t, "file", "big.wav", "audio/wav", bytes.Repeat([]byte("x"), 4096), nil))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
		if tr.stt.callCount() != 0 {
			t.Error("oversized upload must not reach the transcriber")
		}
	})
}

func TestNarrative(t *testing.T) {
	tr := newTestRouter(t, testDeps{})

	t.Run("from raw", func(t *testing.T) {
		rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/narrative", jsonBody(`{"raw":`+positiveAnalysis+`}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		out := decodeJSON(t, rec)
		if md, _ := out["narrative"].(string); !strings.Contains(md, "**positive**") {
			t.Errorf("narrative = %q", md)
		}
		speech, _ := out["speech_text"].(string)
		if strings.ContainsAny(speech, "#*") {
			t.Errorf("speech_text still has markdown: %q", speech)
		}
	})

	t.Run("from canonical analysis", func(t *testing.T) {
		body := `{"analysis":{"sentiment":{"label":"neutral","score":0.1}},"top_n":1}`
		rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/narrative", jsonBody(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		md, _ := decodeJSON(t, rec)["narrative"].(string)
		for _, want := range []string{"**neutral**", "**0.10**", "No significant topics were detected.", "No clear intent was identified."} {
			if !strings.Contains(md, want) {
				t.Errorf("narrative missing %q:\n%s", want, md)
			}
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"raw":[1,2]}`, `nope`} {
			rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/narrative", jsonBody(body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %s: status = %d, want 400", body, rec.Code)
			}
		}
	})
}
