package timetable

import (
	"strings"
	"unicode/utf16"
)

// ── 屏幕徽章配色 ──

// BadgeStyle 徽章的背景、文字、边框样式类
type BadgeStyle struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Border     string `json:"border"`
}

// Class 拼接为单个 class 属性值
func (b BadgeStyle) Class() string {
	return strings.Join([]string{b.Background, b.Text, b.Border}, " ")
}

var badgePalette = [...]BadgeStyle{
	{"bg-blue-100", "text-blue-800", "border-blue-200"},
	{"bg-green-100", "text-green-800", "border-green-200"},
	{"bg-purple-100", "text-purple-800", "border-purple-200"},
	{"bg-yellow-100", "text-yellow-800", "border-yellow-200"},
	{"bg-pink-100", "text-pink-800", "border-pink-200"},
	{"bg-indigo-100", "text-indigo-800", "border-indigo-200"},
	{"bg-red-100", "text-red-800", "border-red-200"},
	{"bg-orange-100", "text-orange-800", "border-orange-200"},
	{"bg-teal-100", "text-teal-800", "border-teal-200"},
	{"bg-cyan-100", "text-cyan-800", "border-cyan-200"},
	{"bg-emerald-100", "text-emerald-800", "border-emerald-200"},
	{"bg-violet-100", "text-violet-800", "border-violet-200"},
	{"bg-amber-100", "text-amber-800", "border-amber-200"},
	{"bg-rose-100", "text-rose-800", "border-rose-200"},
	{"bg-lime-100", "text-lime-800", "border-lime-200"},
}

// BadgePaletteSize 徽章调色板大小
const BadgePaletteSize = len(badgePalette)

// labelHash 按 UTF-16 码元累积 hash = code + ((hash << 5) - hash)
//
// 左移前先截断为 32 位有符号整数，与浏览器端的计算结果逐位一致。
func labelHash(label string) int64 {
	var h int64
	for _, code := range utf16.Encode([]rune(label)) {
		shifted := int64(int32(uint32(h)) << 5)
		h = int64(code) + (shifted - h)
	}
	return h
}

// BadgeIndex 标签在徽章调色板中的下标
func BadgeIndex(label string) int {
	h := labelHash(label)
	if h < 0 {
		h = -h
	}
	return int(h % int64(BadgePaletteSize))
}

// BadgeColor 按学科名称取徽章样式
func BadgeColor(label string) BadgeStyle {
	return badgePalette[BadgeIndex(label)]
}

// ── 导出文档配色 ──

// RGB 导出文档使用的颜色
type RGB struct {
	R, G, B uint8
}

// Hex 转为 #RRGGBB
func (c RGB) Hex() string {
	const digits = "0123456789ABCDEF"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0F]
	}
	return string(b)
}

var teacherPalette = [...]RGB{
	{255, 182, 193},
	{173, 216, 230},
	{144, 238, 144},
	{255, 218, 185},
	{221, 160, 221},
	{255, 255, 224},
	{255, 192, 203},
	{176, 196, 222},
	{152, 251, 152},
	{255, 228, 196},
	{230, 230, 250},
	{255, 239, 213},
	{250, 240, 230},
	{240, 248, 255},
	{245, 255, 250},
	{255, 245, 238},
	{248, 248, 255},
	{245, 245, 220},
	{255, 250, 240},
	{240, 255, 240},
}

// TeacherPaletteSize 导出调色板大小
const TeacherPaletteSize = len(teacherPalette)

var (
	// NeutralFill 有课但无教师（或教师不在列表中）的单元格底色
	NeutralFill = RGB{255, 255, 255}
	// PlaceholderFill 无课单元格底色
	PlaceholderFill = RGB{245, 245, 245}
)

// TeacherColor 按教师在发现顺序列表中的位置取色
func TeacherColor(teacher string, allTeachers []string) RGB {
	if teacher == "" {
		return NeutralFill
	}
	for i, t := range allTeachers {
		if t == teacher {
			return teacherPalette[i%TeacherPaletteSize]
		}
	}
	return NeutralFill
}
