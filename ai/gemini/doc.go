// Package gemini implements ai.AIProvider on Google Gemini through the
// generative-ai-go client.
//
// One genai.Client backs all three services and is released by
// Provider.Close. Gemini cannot read arbitrary image URLs, so the vision
// extractor downloads the presigned image first and sends it inline.
package gemini
