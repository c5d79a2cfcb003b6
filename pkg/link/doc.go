// Package link talks to the motor/sensor board over a serial line.
package link

// Every request from the host is a packet
//
//	[seq] [code | len<<4] [len, only if >= 7] [data...]
//
// and the board answers each with a packet of its own sequence whose
// first data byte echoes the request sequence. Bit 0 of the reply code
// marks a failure, bit 7 marks unsolicited packets. Sequence numbers are
// 1-0xef, so any other byte between packets is noise and skipped.
// There is no checksum, enable parity on the port if needed.
