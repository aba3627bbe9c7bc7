// Package probe reads duration and nominal frame rate from MP4 metadata
// without decoding any media.
package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Info is the container metadata of a video.
type Info struct {
	Duration   float64 `json:"duration"`
	FrameRate  float64 `json:"frameRate"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Fragmented bool    `json:"fragmented"`
}

// File probes the MP4 file at path.
func File(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader probes an MP4 stream.
func Reader(r io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	moov := mp4File.Moov
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return Info{}, fmt.Errorf("no moov box found")
	}

	info := Info{Fragmented: mp4File.IsFragmented()}

	trak := videoTrack(moov)
	if trak == nil {
		return Info{}, fmt.Errorf("no video track found")
	}

	var timescale uint32
	var mediaDuration uint64
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
		mediaDuration = trak.Mdia.Mdhd.Duration
	}

	switch {
	case moov.Mvhd != nil && moov.Mvhd.Timescale > 0 && moov.Mvhd.Duration > 0:
		info.Duration = float64(moov.Mvhd.Duration) / float64(moov.Mvhd.Timescale)
	case moov.Mvex != nil && moov.Mvex.Mehd != nil && moov.Mvex.Mehd.FragmentDuration > 0 && moov.Mvhd != nil && moov.Mvhd.Timescale > 0:
		info.Duration = float64(moov.Mvex.Mehd.FragmentDuration) / float64(moov.Mvhd.Timescale)
	case timescale > 0 && mediaDuration > 0:
		info.Duration = float64(mediaDuration) / float64(timescale)
	}

	if stbl := trak.Mdia.Minf.Stbl; stbl != nil {
		if stbl.Stts != nil {
			info.FrameRate = rateFromStts(stbl.Stts.SampleCount, stbl.Stts.SampleTimeDelta, timescale)
		}
		if stbl.Stsd != nil {
			for _, child := range stbl.Stsd.Children {
				if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
					info.Width, info.Height = int(vse.Width), int(vse.Height)
					break
				}
			}
		}
	}
	if info.FrameRate == 0 && moov.Mvex != nil && timescale > 0 {
		for _, trex := range moov.Mvex.Trexs {
			if trex.TrackID == trak.Tkhd.TrackID && trex.DefaultSampleDuration > 0 {
				info.FrameRate = float64(timescale) / float64(trex.DefaultSampleDuration)
			}
		}
	}
	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" && trak.Mdia.Minf != nil {
			return trak
		}
	}
	return nil
}

// rateFromStts returns the average sample rate described by an stts table.
func rateFromStts(counts, deltas []uint32, timescale uint32) float64 {
	if timescale == 0 || len(counts) == 0 || len(counts) != len(deltas) {
		return 0
	}
	var samples, ticks uint64
	for i, n := range counts {
		samples += uint64(n)
		ticks += uint64(n) * uint64(deltas[i])
	}
	if ticks == 0 {
		return 0
	}
	return float64(samples) * float64(timescale) / float64(ticks)
}
