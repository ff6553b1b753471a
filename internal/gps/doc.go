// Package gps turns a raw NMEA 0183 byte stream into position fixes.
//
// It is built for a single control loop that owns all state:
// - FrameAssembler cuts the stream into '$'...LF frames with a hard capacity
// - DecodeSentence validates the checksum and decodes GGA and RMC
// - FixAggregator reports a fix ready once both kinds have contributed
//
// Nothing in the decode path blocks. Byte sources (serial, gpsd) are drained
// by a Pump goroutine that hands chunks to the control loop.
package gps
