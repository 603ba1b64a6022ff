// Package bot routes Telegram updates to the voicebot library.
//
// Inline queries are answered from the responder with cached voice results.
// Chat commands cover help, statistics, catalog rescans and the acquisition
// run; /upload and /rescan are restricted to admins when any are configured.
// Uploads run in the background so inline queries keep being answered, and
// progress is reported back to the chat that started the run.
//
// Run supervises the long-polling loop and restarts it a bounded number of
// times after failures.
package bot
