package contracts

type InputFlags struct {
	InputRootDir string
	OutputPath   string
	ReportPath   string
	Backend      string
	TileExtent   string
	Stride       string
	MPP          float64
	Level        int
}
