package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"cryosim/internal/models"
	"cryosim/pkg/config"
	"cryosim/pkg/distribution"
	"cryosim/pkg/geometry"
	"cryosim/pkg/optics"
	"cryosim/pkg/pipeline"
	"cryosim/pkg/potential"
	"cryosim/pkg/spectrum"
	"cryosim/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "cryosim.yaml", "Configuration file in YAML format")
	outputDir := flag.String("output", "", "Output directory (overrides the config)")
	numParticles := flag.Int("particles", 8, "Number of particle images to sample")
	seed := flag.Uint64("seed", 0, "Random seed (overrides the config when nonzero)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config file: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}

	if cfg.Simulation.NumCores > 0 {
		runtime.GOMAXPROCS(cfg.Simulation.NumCores)
	}

	fmt.Println("================================")
	fmt.Println("CRYOSIM: CRYO-EM IMAGE SIMULATION AND LIKELIHOOD EVALUATION")
	fmt.Println("================================")

	imageCfg, err := geometry.NewImageConfig(
		[2]int{cfg.Image.Height, cfg.Image.Width},
		cfg.PaddedShape(),
		cfg.Image.PixelSize,
	)
	if err != nil {
		log.Fatalf("Invalid imaging configuration: %v", err)
	}

	specimen := syntheticSpecimen(cfg)
	model := buildModel(cfg, imageCfg, specimen)

	fmt.Printf("Imaging plane: %dx%d pixels at %.2f A/pixel (padded to %dx%d)\n",
		cfg.Image.Height, cfg.Image.Width, cfg.Image.PixelSize,
		imageCfg.PaddedShape[0], imageCfg.PaddedShape[1])
	fmt.Printf("Specimen: %d scattering points within %.1f A\n",
		cfg.Simulation.NumPoints, cfg.Simulation.SpecimenExtent)

	startTime := time.Now()

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	viewer := visualization.NewViewer()

	if cfg.Output.SaveRendered {
		rendered, err := model.Render()
		if err != nil {
			log.Fatalf("Rendering failed: %v", err)
		}
		renderedPath := filepath.Join(cfg.Output.Dir, "rendered.jpg")
		if err := viewer.SaveImage(rendered, renderedPath); err != nil {
			log.Fatalf("Failed to save rendered image: %v", err)
		}
		fmt.Printf("Noiseless render saved to: %s\n", renderedPath)
	}

	stack := models.NewParticleStack(cfg.Image.Height, cfg.Image.Width, cfg.Image.PixelSize)
	for i := 0; i < *numParticles; i++ {
		particleSeed := cfg.Simulation.Seed + uint64(i)
		sampled, err := model.Sample(rand.NewSource(particleSeed))
		if err != nil {
			log.Fatalf("Sampling particle %d failed: %v", i, err)
		}

		spec, err := observedSpectrum(model, sampled)
		if err != nil {
			log.Fatalf("Transforming particle %d failed: %v", i, err)
		}
		ll, err := model.LogLikelihood(spec)
		if err != nil {
			log.Fatalf("Evaluating particle %d likelihood failed: %v", i, err)
		}

		particle := models.Particle{Image: sampled, Seed: particleSeed, LogLikelihood: ll}
		if err := stack.Append(particle); err != nil {
			log.Fatalf("Appending particle %d failed: %v", i, err)
		}

		if cfg.Output.Verbose {
			mean := stat.Mean(sampled.Data, nil)
			std := stat.StdDev(sampled.Data, nil)
			fmt.Printf("Particle %03d: seed=%d mean=%.4f std=%.4f logL=%.4f\n",
				particle.Index, particleSeed, mean, std, ll)
		}
	}

	if err := viewer.SaveStack(stack, cfg.Output.Dir); err != nil {
		log.Fatalf("Failed to save particle stack: %v", err)
	}

	fmt.Printf("\nSimulated %d particles in %.2f seconds\n",
		stack.Len(), time.Since(startTime).Seconds())
	fmt.Printf("Output saved to: %s\n", cfg.Output.Dir)
}

// syntheticSpecimen builds a random point-cloud specimen from the
// simulation settings.
func syntheticSpecimen(cfg *config.Config) *potential.VoxelCloud {
	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))
	n := cfg.Simulation.NumPoints
	extent := cfg.Simulation.SpecimenExtent

	weights := make([]float64, n)
	coords := make([][3]float64, n)
	for i := range weights {
		weights[i] = 1
		for d := 0; d < 3; d++ {
			coords[i][d] = extent * (2*rng.Float64() - 1)
		}
	}

	specimen, err := potential.NewVoxelCloud(weights, coords, cfg.Image.PixelSize)
	if err != nil {
		log.Fatalf("Failed to build specimen: %v", err)
	}
	return specimen
}

// buildModel assembles the observation model from the configuration.
func buildModel(cfg *config.Config, imageCfg *geometry.ImageConfig, specimen potential.Potential) *distribution.IndependentFourierGaussian {
	p := pipeline.New(imageCfg, specimen)

	if cfg.Optics.Enabled {
		p.Optics = optics.CTF{
			DefocusU:            cfg.Optics.DefocusU,
			DefocusV:            cfg.Optics.DefocusV,
			AstigmatismAngle:    cfg.Optics.AstigmatismAngle,
			VoltageKV:           cfg.Optics.VoltageKV,
			SphericalAberration: cfg.Optics.SphericalAberration,
			AmplitudeContrast:   cfg.Optics.AmplitudeContrast,
			PhaseShift:          cfg.Optics.PhaseShift,
		}
	}
	if cfg.Detector.Variance > 0 || cfg.Detector.PixelSize > 0 {
		p.Detector = optics.GaussianDetector{
			Variance:          cfg.Detector.Variance,
			PhysicalPixelSize: cfg.Detector.PixelSize,
		}
	}

	return &distribution.IndependentFourierGaussian{
		Pipeline:      p,
		Variance:      distribution.Constant{Value: cfg.Simulation.NoiseVariance},
		ContrastScale: cfg.Simulation.ContrastScale,
	}
}

// observedSpectrum lifts a sampled output image back onto the padded plane
// so its likelihood can be evaluated.
func observedSpectrum(model *distribution.IndependentFourierGaussian, im geometry.Image) (geometry.ComplexImage, error) {
	imageCfg := model.Pipeline.Config
	padded, err := imageCfg.Pad(im, geometry.Fill{Mode: geometry.PadConstant})
	if err != nil {
		return geometry.ComplexImage{}, err
	}
	return spectrum.RFFT2(padded), nil
}
