// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newOllamaTestClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		model:      "test-model",
	}
}

func TestOllamaClient_Chat(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: Message{Role: "assistant", Content: "Proponuję makaron."},
			Done:    true,
		})
	}))
	defer server.Close()

	client := newOllamaTestClient(server.URL)
	text, err := client.Chat(context.Background(), []Message{
		{Role: "system", Content: "Jesteś kucharzem."},
		{Role: "user", Content: "Co na obiad?"},
	}, GenerationParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Proponuję makaron." {
		t.Errorf("wrong text: %q", text)
	}

	if gotReq.Model != "test-model" || gotReq.Stream {
		t.Errorf("request payload wrong: %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages not forwarded: %+v", gotReq.Messages)
	}
}

func TestOllamaClient_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'test-model' not found"})
	}))
	defer server.Close()

	client := newOllamaTestClient(server.URL)
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "x"}}, GenerationParams{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "ollama pull") {
		t.Errorf("expected pull hint in error, got %v", err)
	}
}

func TestOllamaClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newOllamaTestClient(server.URL)
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "x"}}, GenerationParams{})
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestOllamaOptions(t *testing.T) {
	opts := ollamaOptions(GenerationParams{})
	if opts["temperature"] != float32(0.2) || opts["top_k"] != 20 ||
		opts["top_p"] != float32(0.9) || opts["num_predict"] != 8192 {
		t.Errorf("defaults wrong: %v", opts)
	}
	if _, ok := opts["stop"]; ok {
		t.Error("stop must be absent when not set")
	}

	temp := float32(0.7)
	topK := 40
	opts = ollamaOptions(GenerationParams{Temperature: &temp, TopK: &topK, Stop: []string{"###"}})
	if opts["temperature"] != float32(0.7) || opts["top_k"] != 40 {
		t.Errorf("overrides ignored: %v", opts)
	}
	if stop, ok := opts["stop"].([]string); !ok || stop[0] != "###" {
		t.Errorf("stop not forwarded: %v", opts["stop"])
	}
}
