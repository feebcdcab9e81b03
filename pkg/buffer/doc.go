// Package buffer provides the fixed-capacity circular buffers used by the
// device data pipeline.
//
// It contains two buffer types with deliberately different overflow
// policies:
//
//   - Ring: a single-producer/single-consumer ring of elements that
//     overwrites the oldest data when full. Used for raw PCM samples
//     between the capture driver and the encoder, where freshness beats
//     completeness.
//
//   - PacketRing: a byte ring of length-framed records that admits a
//     record only if the whole framed record fits, and drops it
//     atomically otherwise. Used for encoded audio packets between the
//     encoder and the transport sender, where a reader must never see a
//     partial record.
//
// Neither buffer blocks. Both are polled from the device scheduler loop.
package buffer
