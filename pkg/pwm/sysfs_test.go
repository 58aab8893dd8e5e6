package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChannel(t *testing.T, root string, chip, channel int) string {
	t.Helper()
	dir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip), fmt.Sprintf("pwm%d", channel))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func readAttr(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestSysfsDriver_StartSetStop(t *testing.T) {
	root := t.TempDir()
	dir := makeChannel(t, root, 0, 1)

	d, err := NewSysfs(root, 100, 1000, testLogger())
	require.NoError(t, err)

	require.NoError(t, d.Start("0:1", 0))
	assert.Equal(t, "1000000", readAttr(t, filepath.Join(dir, "period")))
	assert.Equal(t, "0", readAttr(t, filepath.Join(dir, "duty_cycle")))
	assert.Equal(t, "1", readAttr(t, filepath.Join(dir, "enable")))

	require.NoError(t, d.SetDutyCycle("0:1", 25))
	assert.Equal(t, "250000", readAttr(t, filepath.Join(dir, "duty_cycle")))

	require.NoError(t, d.Stop("0:1"))
	assert.Equal(t, "0", readAttr(t, filepath.Join(dir, "enable")))

	assert.Error(t, d.SetDutyCycle("0:1", 10), "stopped pin must reject writes")
	assert.NoError(t, d.Cleanup())
}

func TestSysfsDriver_RejectsNegativeDuty(t *testing.T) {
	root := t.TempDir()
	makeChannel(t, root, 1, 0)

	d, err := NewSysfs(root, 100, 1000, testLogger())
	require.NoError(t, err)
	require.NoError(t, d.Start("pwmchip1/pwm0", 0))

	assert.Error(t, d.SetDutyCycle("pwmchip1/pwm0", -5))
}

func TestSysfsDriver_MissingChannelFailsStart(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pwmchip0"), 0o755))

	d, err := NewSysfs(root, 100, 1000, testLogger())
	require.NoError(t, err)

	// export is written but no kernel creates the channel directory
	err = d.Start("0:2", 0)
	assert.Error(t, err)
	assert.Equal(t, "2", readAttr(t, filepath.Join(root, "pwmchip0", "export")))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("gpio", Options{PWMMax: 100, FreqHz: 1000}, testLogger())
	assert.Error(t, err)

	d, err := Open(BackendSim, Options{}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Simulated{}, d)
}

func TestSysfsDriver_ResetsLeftoverDutyBeforePeriod(t *testing.T) {
	root := t.TempDir()
	dir := makeChannel(t, root, 0, 0)

	// an earlier run left a 4ms duty cycle behind
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duty_cycle"), []byte("4000000"), 0o644))

	d, err := NewSysfs(root, 100, 1000, testLogger())
	require.NoError(t, err)

	// emulate the kernel: a period shorter than the current duty cycle is EINVAL
	var writes []string
	d.(*sysfsDriver).write = func(path, value string) error {
		writes = append(writes, filepath.Base(path)+"="+value)
		if filepath.Base(path) == "period" {
			period, _ := strconv.ParseInt(value, 10, 64)
			duty, _ := strconv.ParseInt(readAttr(t, filepath.Join(dir, "duty_cycle")), 10, 64)
			if period < duty {
				return syscall.EINVAL
			}
		}
		return writeAttr(path, value)
	}

	require.NoError(t, d.Start("0:0", 0))
	assert.Equal(t, []string{"duty_cycle=0", "period=1000000", "duty_cycle=0", "enable=1"}, writes)
}

func TestDutyNs(t *testing.T) {
	assert.Equal(t, int64(0), dutyNs(0, 100, 1000000))
	assert.Equal(t, int64(250000), dutyNs(25, 100, 1000000))
	assert.Equal(t, int64(1000000), dutyNs(255, 255, 1000000))
}

func TestOpen_BBBValidatesOptions(t *testing.T) {
	_, err := Open(BackendBBB, Options{PWMMax: 0, FreqHz: 1000}, testLogger())
	assert.Error(t, err)

	_, err = Open(BackendBBB, Options{PWMMax: 100, FreqHz: 0}, testLogger())
	assert.Error(t, err)
}
