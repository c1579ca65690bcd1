package platform

// Arch identifies the CPU architecture a release asset was built for.
type Arch int

const (
	UnknownArch Arch = iota
	Amd64
	Arm64
	Aarch64
	PPC64LE
	PPC64
	Arm32
	MipsLE
	Mips
	Mips64LE
	Mips64
	RiscV
	X86
)

func (a Arch) String() string {
	switch a {
	case Amd64:
		return "amd64"
	case Arm64:
		return "arm64"
	case Aarch64:
		return "aarch64"
	case PPC64LE:
		return "ppc64le"
	case PPC64:
		return "ppc64"
	case Arm32:
		return "arm"
	case MipsLE:
		return "mipsle"
	case Mips:
		return "mips"
	case Mips64LE:
		return "mips64le"
	case Mips64:
		return "mips64"
	case RiscV:
		return "riscv"
	case X86:
		return "x86"
	default:
		return "unknown"
	}
}

type archRule struct {
	markers []string
	arch    Arch
}

// archRules is evaluated top to bottom and the first hit wins. Several
// markers are substrings of others ("arm" of "arm64", "mips" of "mips64le"),
// so the longer and more specific markers sit above the shorter ones.
var archRules = []archRule{
	{markers: []string{"amd64", "x64", "x86_64"}, arch: Amd64},
	{markers: []string{"arm64"}, arch: Arm64},
	{markers: []string{"aarch64"}, arch: Aarch64},
	{markers: []string{"ppc64le", "ppcle"}, arch: PPC64LE},
	{markers: []string{"ppc", "ppc64"}, arch: PPC64},
	{markers: []string{"mips64le"}, arch: Mips64LE},
	{markers: []string{"mips64"}, arch: Mips64},
	{markers: []string{"mipsle"}, arch: MipsLE},
	{markers: []string{"mips"}, arch: Mips},
	{markers: []string{"x86", "i386", "i686", "x86_32", "386", "686", "ia32"}, arch: X86},
	{markers: []string{"arm"}, arch: Arm32},
	{markers: []string{"riscv"}, arch: RiscV},

	// Bitness carried by the OS token instead of an arch token.
	{markers: []string{"windows64", "win64", "winx64", "linux64"}, arch: Amd64},
	{markers: []string{"windows32", "win32", "winx86", "linux32"}, arch: X86},
}

// ClassifyArch derives the CPU architecture from a filename. Unlike
// ClassifyOS it does not lower-case its input; callers that need
// case-insensitive matching must fold the name first.
func ClassifyArch(filename string) Arch {
	for _, r := range archRules {
		if containsAny(filename, r.markers) {
			return r.arch
		}
	}
	return UnknownArch
}
