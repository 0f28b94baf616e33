// Package protocol groups the comando wire stack.
//
// Ownership boundary:
// - codec: packed little-endian argument values
// - frame: length + checksum framing over a byte stream
// - router: protocol-id demultiplexing of frames
// - command: command ids and argument cursors
// - event: named commands, listeners and blocking calls
package protocol
