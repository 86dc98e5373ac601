// Package rawio 读取仪器导出的原始表格文件
//
// 支持两种载体：
// - 分隔文本（CSV/TSV 等，分隔符自动嗅探）
// - Excel 工作簿（仪器原生导出格式，经 excelize 读取）
//
// 本包只负责把文件变成 [][]string，不理解列语义；
// 列语义由 genotype/loader 两个包解释。
package rawio

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// 可识别的分隔符（按优先级）
var validDelimiters = []rune{'\t', ',', ';', '|', ' '}

// FileInfo 嗅探结果
type FileInfo struct {
	HeaderRows int    // 文件头部非数字开头的行数（注释行之后）
	Delimiter  rune   // 推断出的分隔符，0 表示无法确定
	FirstLine  string // 第一个数据行（嗅探依据）
}

// Sniff 推断文件的表头行数和分隔符
//
// 规则沿用实验室文件约定：
// - comment 前缀行跳过
// - 首字符非数字的行计为表头行
// - 分隔符取第一个数据行中出现次数最多的候选分隔符
func Sniff(path string, comment string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info := &FileInfo{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	line := ""
	for scanner.Scan() {
		line = scanner.Text()
		if comment != "" && strings.HasPrefix(line, comment) {
			line = ""
			continue
		}
		break
	}
	firstContent := line

	// 数表头行
	for line != "" && !startsWithDigit(line) {
		info.HeaderRows++
		if !scanner.Scan() {
			line = ""
			break
		}
		line = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	info.FirstLine = line
	info.Delimiter = sniffDelimiter(line)
	if info.Delimiter == 0 {
		// 数据行可能以非数字的 location 字符串开头（如 "c12-1,..."），
		// 此时退回用第一个非注释行推断分隔符
		info.Delimiter = sniffDelimiter(firstContent)
	}
	return info, nil
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// sniffDelimiter 在候选分隔符中选出现次数最多的一个
func sniffDelimiter(line string) rune {
	best := rune(0)
	bestCount := 0
	for _, d := range validDelimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}
