package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kavofa/hific-video/internal/domain/port"
)

type probeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func probeVideo(ctx context.Context, ffprobeBin, videoPath string) (*port.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,nb_read_packets:format=duration",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(data []byte) (*port.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	s := out.Streams[0]

	info := &port.VideoInfo{Width: s.Width, Height: s.Height}

	fps, err := parseRate(s.RFrameRate)
	if err != nil || fps == 0 {
		fps, _ = parseRate(s.AvgFrameRate)
	}
	info.FPS = fps

	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil {
		info.Duration = d
	}

	switch {
	case atoiOK(s.NbFrames):
		info.FrameCount, _ = strconv.Atoi(s.NbFrames)
	case atoiOK(s.NbReadPackets):
		info.FrameCount, _ = strconv.Atoi(s.NbReadPackets)
	default:
		info.FrameCount = int(math.Round(info.Duration * info.FPS))
	}
	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or plain "25".
func parseRate(rate string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", rate, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", rate, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

func atoiOK(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
