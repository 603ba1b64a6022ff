// Package preflight provides readiness checks for the Bot API and the
// filesystem paths voicebot depends on.
//
// These checks run in two contexts:
//   - "voicebot serve" runs RunAll before starting the daemon and logs every
//     failed check as a warning.
//   - The CLI "voicebot check" command renders every result as a status line.
package preflight
