package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"slidemeta/contracts"
)

// FindSlideFiles walks root and returns every file carrying a
// recognized slide extension, with their total on-disk size. AppleDouble
// "._" droppings are skipped.
func FindSlideFiles(root string) ([]string, int64, error) {
	var files []string
	var size int64 = 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), "._") {
			return nil
		}
		if contracts.IsSlideFile(info.Name()) {
			size += info.Size()
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, size, fmt.Errorf("Error while scanning directory: %v", err)
	}
	return files, size, nil
}

// CheckProvidedDirs validates the CLI's input directory argument.
func CheckProvidedDirs(inputRootDir string) error {
	if inputRootDir == "" {
		return fmt.Errorf("input directory required")
	}
	if stat, err := os.Stat(inputRootDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("input directory does not exist or is not a directory")
	}
	return nil
}
