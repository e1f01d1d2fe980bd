package classifier

import (
	"math/rand"

	"nudge/internal/vision"
)

// SyntheticSamples generates a deterministic labeled seed set for offline
// training: attentive examples cluster around open eyes, centered gaze, and
// moderate blink rates; inattentive examples around the opposite.
func SyntheticSamples(count int, seed int64) []Sample {
	if count < 2 {
		count = 2
	}
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, 0, count)

	gazes := []vision.GazeDirection{
		vision.GazeLeft, vision.GazeRight, vision.GazeUp,
		vision.GazeDown, vision.GazeDownLeft, vision.GazeUpRight,
	}
	poses := []vision.HeadPose{
		vision.PoseTurnedLeft, vision.PoseTurnedRight,
		vision.PoseTilted, vision.PoseProfileLeft,
	}

	for i := 0; i < count; i++ {
		if i%2 == 0 {
			samples = append(samples, Sample{
				Label: Attentive,
				Features: Features{
					EyeOpenness: 0.5 + rng.Float64()*0.5,
					BlinkRate:   5 + rng.Float64()*15,
					Gaze:        vision.GazeCenter,
					HeadPose:    vision.PoseForward,
					Confidence:  0.7 + rng.Float64()*0.3,
				},
			})
			continue
		}
		samples = append(samples, Sample{
			Label: Inattentive,
			Features: Features{
				EyeOpenness: rng.Float64() * 0.3,
				BlinkRate:   30 + rng.Float64()*30,
				Gaze:        gazes[rng.Intn(len(gazes))],
				HeadPose:    poses[rng.Intn(len(poses))],
				Confidence:  0.3 + rng.Float64()*0.4,
			},
		})
	}
	return samples
}
