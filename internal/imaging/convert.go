// Package imaging converts legacy vector images (EMF, WMF) to PNG using an
// external ImageMagick binary, so documents carrying them keep their
// pictures in viewers that no longer render the legacy formats.
package imaging

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const (
	magickBinary   = "magick"
	convertTimeout = 30 * time.Second
)

// Converter shells out to ImageMagick. The zero value is not usable; call
// NewConverter.
type Converter struct {
	binary  string
	timeout time.Duration
	log     logger.Logger
}

func NewConverter() *Converter {
	return &Converter{
		binary:  magickBinary,
		timeout: convertTimeout,
		log:     logger.GetLogger(),
	}
}

// Available reports whether the conversion binary can be found on PATH.
func (c *Converter) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// ToPNG converts image bytes whose format ImageMagick detects from the
// given extension into PNG bytes.
func (c *Converter) ToPNG(ctx context.Context, data []byte, ext string) ([]byte, error) {
	if _, err := exec.LookPath(c.binary); err != nil {
		return nil, types.NewAppError(types.ErrConvert,
			fmt.Sprintf("未找到图像转换工具 %s", c.binary), err)
	}

	dir, err := os.MkdirTemp("", "docx-translator-img-")
	if err != nil {
		return nil, types.NewAppError(types.ErrConvert, "无法创建临时目录", err)
	}
	defer os.RemoveAll(dir)

	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "emf"
	}
	in := filepath.Join(dir, "image."+ext)
	out := filepath.Join(dir, "image.png")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return nil, types.NewAppError(types.ErrConvert, "无法写入临时图像文件", err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.binary, in, out)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return nil, types.NewAppError(types.ErrConvert, "图像转换超时", cctx.Err())
		}
		return nil, types.NewAppErrorWithDetails(types.ErrConvert,
			"图像转换失败", strings.TrimSpace(string(output)), err)
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, types.NewAppError(types.ErrConvert, "无法读取转换结果", err)
	}
	c.log.Debug("图像转换完成",
		logger.String("from", ext),
		logger.Int("bytes", len(png)))
	return png, nil
}
