package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// timeOfDayToCron turns an "HH:MM" time of day into a daily cron spec.
func timeOfDayToCron(hhmm string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time of day %q", hhmm)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		keepDays := a.GetSettingsInt64Value("system", "oprlog_keep_days")
		if keepDays <= 0 {
			keepDays = 365
		}
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*time.Duration(keepDays))).Delete(domain.SysOprLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.initStoreHoursJobs()

	a.sched.Start()
}

// initStoreHoursJobs flips the store open and closed at the configured
// times of day. Empty values disable the automation.
func (a *Application) initStoreHoursJobs() {
	addFlip := func(name, hhmm string, isOpen bool) {
		if strings.TrimSpace(hhmm) == "" {
			return
		}
		spec, err := timeOfDayToCron(hhmm)
		if err != nil {
			zap.S().Errorf("store %s time config error: %s", name, err.Error())
			return
		}
		_, err = a.sched.AddFunc(spec, func() {
			if _, err := a.catalog.SetStoreStatus(context.Background(), a.superID, isOpen); err != nil {
				zap.S().Errorf("scheduled store %s failed: %s", name, err.Error())
				return
			}
			zap.L().Info("scheduled store status flip",
				zap.String("job", name), zap.Bool("is_open", isOpen))
		})
		if err != nil {
			zap.S().Errorf("init store %s job error %s", name, err.Error())
		}
	}

	addFlip("open", a.GetSettingsStringValue("store", "open_time"), true)
	addFlip("close", a.GetSettingsStringValue("store", "close_time"), false)
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	// Collect CPU usage
	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // Store as percentage * 100
	}

	// Collect memory usage
	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024))
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	// Collect process CPU usage
	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("toughstore_cpuuse", int64(cpuuse*100)) // Store as percentage * 100
	}

	// Collect process memory usage
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("toughstore_memuse", int64(meminfo.RSS/1024/1024))
	}
}
