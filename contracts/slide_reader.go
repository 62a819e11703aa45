package contracts

// SlideReader opens pyramidal slide files for metadata queries.
type SlideReader interface {
	Open(path string) (Slide, error)
}

// Slide is an open session over one slide file. Implementations report
// pyramid geometry without decoding pixel data. Close must be called on
// every exit path; a Slide is not safe for concurrent use, each caller
// opens its own session.
type Slide interface {
	// LevelCount returns the number of pyramid levels.
	LevelCount() int

	// ClosestLevel returns the index of the level whose resolution is
	// nearest to the target microns-per-pixel value. The distance metric
	// and tie-break belong to the backend.
	ClosestLevel(mpp float64) (int, error)

	// LevelDimensions returns the pixel width and height of a level.
	LevelDimensions(level int) (width, height int, err error)

	// LevelResolution returns the microns-per-pixel resolution of a
	// level along the x and y axes.
	LevelResolution(level int) (mppX, mppY float64, err error)

	Close() error
}
