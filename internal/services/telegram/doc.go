// Package telegram is a small Bot API client covering the methods voicebot
// needs: long polling, text and voice messages, message deletion and inline
// query answers.
//
// Failures returned by the API are surfaced as *APIError, which carries the
// retry_after hint on 429 responses. Uploader adapts the client to the
// acquisition pipeline's Transport by sending a clip as a voice message,
// capturing the resulting file_id and deleting the message afterwards.
package telegram
