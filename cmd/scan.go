package cmd

import (
	"fmt"
	"log"

	"MacanFM/config"
	"MacanFM/core/library"
	"MacanFM/db"
	"MacanFM/repository"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "扫描媒体库",
	Long:  `遍历媒体目录，将新发现的音视频文件登记到曲库。`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("无法连接数据库: %v", err)
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			log.Fatalf("初始化数据库失败: %v", err)
		}

		scanner := library.NewScanner(repository.NewMySQLTrackRepository(), cfg.MediaDir)
		added, err := scanner.Scan()
		if err != nil {
			log.Fatalf("扫描失败: %v", err)
		}
		fmt.Printf("扫描完成，新增 %d 个曲目\n", added)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
