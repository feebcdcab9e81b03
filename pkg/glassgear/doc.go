// Package glassgear implements the control plane of the glass wearable:
// the cooperative scheduler loop that drives audio capture and encoding,
// the wireless transport multiplexer for audio packets and chunked photo
// uploads, power management, and the button/LED interaction state
// machine.
//
// The package owns no hardware. Every platform surface is an injected
// collaborator: the capture driver, the audio encoder, the image sensor,
// the wireless link, the power HAL, and the battery reader. This keeps
// the loop deterministic and lets the same core run on a device, in the
// simulator, and in tests.
//
// The scheduler is a single cooperative loop. One iteration is one full
// pass in fixed priority order:
//
//	button > LED > (OTA worker runs independently) > audio capture/encode
//	> audio send > power mode > battery > photo capture > photo chunks
//	> light sleep
//
// No iteration step blocks except the bounded capture read and the
// bounded opportunistic light sleep. Both streams degrade by dropping
// data under saturation; nothing in the loop retries.
package glassgear
